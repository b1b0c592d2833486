package scraper

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

const falabellaFixture = `<!DOCTYPE html>
<html><body>
<div id="testId-searchResults-products">
  <div class="jsx-2858414180 pod-summary">
    <div class="patrocinado-pod"><span class="patrocinado-title">Patrocinado</span></div>
    <b class="pod-subTitle">Laptop Asus Vivobook</b>
    <span class="copy10 primary medium">S/ 1,999</span>
  </div>
  <div class="jsx-2858414180 pod-summary">
    <a href="/falabella-pe/product/123/laptop-hp">
      <img src="https://falabella.scene7.com/is/image/123.jpg">
    </a>
    <span class="brand">HP</span>
    <b class="pod-subTitle">Laptop HP Victus 15</b>
    <span class="copy10 primary medium">S/ 3,299</span>
    <span class="discount-badge-item">-20%</span>
    <div data-rating="4.5"></div>
  </div>
  <div class="jsx-2858414180 pod-summary">
    <a href="javascript:void(0)">compare</a>
    <a href="item/555">
      <img class="lazy" data-src="//images.falabella.com/555.jpg">
    </a>
    <span class="brand">(4)</span>
    <b class="pod-subTitle">Mouse Gamer Redragon</b>
    <ol class="pod-prices"><li class="prices-0" data-internet-price="149.90"><span class="copy10">149,90</span></li></ol>
    <div class="pod-rating">
      <i class="csicon-star_full_filled"></i><i class="csicon-star_full_filled"></i>
      <i class="csicon-star_full_filled"></i><i class="csicon-star_full_filled"></i>
      <i class="csicon-star_empty"></i>
    </div>
  </div>
</div>
</body></html>`

const falabellaJSONFixture = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
[{"@type":"Product","name":"Audífonos Sony WH-1000XM5","offers":{"price":"1299.00"},"url":"/falabella-pe/product/1/sony","image":"https://falabella.scene7.com/sony.jpg"},
 {"@type":"Product","name":"Audífonos JBL Tune","offers":{"price":199},"url":"https://www.falabella.com.pe/p/2"}]
</script>
</head><body><div id="app"></div></body></html>`

func newTestFalabella(baseURL string) *Falabella {
	return NewFalabella(config.SiteConfig{Enabled: true, BaseURL: baseURL}, testLogger)
}

func TestFalabellaSearchDropsSponsored(t *testing.T) {
	server, seen := fixtureServer(t, falabellaFixture)
	fb := newTestFalabella(server.URL)

	got := fb.Search(context.Background(), httpSession(t), "laptop hp", 5)
	require.Len(t, got, 2)

	require.Len(t, seen(), 1)
	u, err := url.Parse(seen()[0])
	require.NoError(t, err)
	assert.Equal(t, "/falabella-pe/search", u.Path)
	assert.Equal(t, "laptop hp", u.Query().Get("Ntt"))

	hp := got[0]
	assert.Equal(t, "Laptop HP Victus 15", hp.Title)
	assert.Equal(t, 3299.0, hp.Price)
	assert.Equal(t, server.URL+"/falabella-pe/product/123/laptop-hp", hp.URL)
	assert.Equal(t, "https://falabella.scene7.com/is/image/123.jpg", hp.ImageURL)
	assert.Equal(t, 20, hp.Discount)
	assert.Equal(t, 4.5, hp.Rating)
	assert.Equal(t, "HP", hp.Brand)
	assert.Equal(t, "Falabella", hp.Seller)
	assert.Equal(t, "Perú", hp.Location)
	assert.Equal(t, types.CurrencyPEN, hp.Currency)
	assert.Equal(t, config.SiteFalabella, hp.Site)

	mouse := got[1]
	assert.Equal(t, "Mouse Gamer Redragon", mouse.Title)
	assert.Equal(t, 149.9, mouse.Price)
	assert.Equal(t, server.URL+"/item/555", mouse.URL)
	assert.Equal(t, "https://images.falabella.com/555.jpg", mouse.ImageURL)
	assert.Equal(t, 4.0, mouse.Rating)
	assert.Empty(t, mouse.Brand)
	assert.Zero(t, mouse.Discount)

	for _, l := range got {
		assert.NotEqual(t, "Laptop Asus Vivobook", l.Title)
	}
}

func TestFalabellaKeepsSponsoredWhenAlone(t *testing.T) {
	html := `<div class="pod-summary">
	  <div class="patrocinado-pod"><span class="patrocinado-title">Patrocinado</span></div>
	  <b class="pod-subTitle">Tablet Samsung Galaxy Tab</b>
	  <span class="copy10 primary medium">S/ 899</span>
	</div>`
	server, _ := fixtureServer(t, html)

	got := newTestFalabella(server.URL).Search(context.Background(), httpSession(t), "tablet", 3)
	require.Len(t, got, 1)
	assert.Equal(t, "Tablet Samsung Galaxy Tab", got[0].Title)
	assert.Equal(t, 899.0, got[0].Price)
}

func TestFalabellaStructuredFallback(t *testing.T) {
	server, _ := fixtureServer(t, falabellaJSONFixture)
	fb := newTestFalabella(server.URL)
	session := httpSession(t)

	got := fb.Search(context.Background(), session, "audifonos", 5)
	require.Len(t, got, 2)
	assert.Equal(t, "Audífonos Sony WH-1000XM5", got[0].Title)
	assert.Equal(t, 1299.0, got[0].Price)
	assert.Equal(t, server.URL+"/falabella-pe/product/1/sony", got[0].URL)
	assert.Equal(t, "https://falabella.scene7.com/sony.jpg", got[0].ImageURL)
	assert.Equal(t, "Falabella", got[0].Seller)
	assert.Equal(t, 199.0, got[1].Price)
	assert.Equal(t, "https://www.falabella.com.pe/p/2", got[1].URL)

	assert.Len(t, fb.Search(context.Background(), session, "audifonos", 1), 1)
	assert.Empty(t, fb.Search(context.Background(), session, "audifonos", 0))
}

func TestFalabellaTitleFilter(t *testing.T) {
	html := `<div class="pod-summary"><b class="pod-subTitle">Promo</b><a href="/p/1">x</a></div>`
	server, _ := fixtureServer(t, html)

	got := newTestFalabella(server.URL).Search(context.Background(), httpSession(t), "x", 1)
	require.Len(t, got, 1)
	assert.Equal(t, types.UntitledListing, got[0].Title)
	assert.Zero(t, got[0].Price)
	assert.Equal(t, server.URL+"/p/1", got[0].URL)
}

func TestFalabellaPriceRequiresCurrency(t *testing.T) {
	html := `<div class="pod-summary">
	  <b class="pod-subTitle">Cafetera Oster</b>
	  <span class="copy10">2 cuotas</span>
	</div>`
	server, _ := fixtureServer(t, html)

	got := newTestFalabella(server.URL).Search(context.Background(), httpSession(t), "cafetera", 1)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Price)
	assert.False(t, got[0].HasPrice())
}

package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

const mercadoLibreFixture = `<!DOCTYPE html>
<html><body>
<ol class="ui-search-layout">
  <li class="ui-search-layout__item">
    <div class="ui-search-result-image"><img class="ui-search-result-image__element" src="" data-src="//http2.mlstatic.com/laptop.jpg"></div>
    <h2 class="ui-search-item__title">Laptop Lenovo IdeaPad 3</h2>
    <span class="ui-search-item__brand-discoverability">por</span>
    <span class="seller-info">TiendaPro</span>
    <div class="ui-search-price"><span class="andes-money-amount__fraction">2,499</span></div>
    <a class="ui-search-link" href="/MPE-123-laptop">ver</a>
    <p class="ui-search-item__location">Lima</p>
    <p class="ui-search-item__shipping">Envío gratis</p>
    <span class="ui-search-reviews__rating">4,5</span>
  </li>
  <li class="ui-search-layout__item">
    <h2>TV</h2>
    <a title="Televisor Samsung 50 pulgadas" href="https://articulo.mercadolibre.com.pe/MPE-9"></a>
    <span class="price-tag-fraction">1299</span>
    <p class="ui-search-item__shipping">Llega mañana</p>
  </li>
  <li class="ui-search-layout__item"></li>
  <li class="ui-search-layout__item">
    <h2 class="ui-search-item__title">Mouse Logitech M170</h2>
    <span class="andes-money-amount__fraction">59</span>
    <img src="https://http2.mlstatic.com/mouse.jpg">
  </li>
</ol>
</body></html>`

func newTestMercadoLibre(baseURL string) *MercadoLibre {
	return NewMercadoLibre(config.SiteConfig{Enabled: true, BaseURL: baseURL}, testLogger)
}

func TestMercadoLibreSearch(t *testing.T) {
	server, seen := fixtureServer(t, mercadoLibreFixture)
	ml := newTestMercadoLibre(server.URL)

	got := ml.Search(context.Background(), httpSession(t), "laptop lenovo", 10)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"/laptop+lenovo"}, seen())

	first := got[0]
	assert.Equal(t, "Laptop Lenovo IdeaPad 3", first.Title)
	assert.Equal(t, 2499.0, first.Price)
	assert.Equal(t, types.CurrencyPEN, first.Currency)
	assert.Equal(t, server.URL+"/MPE-123-laptop", first.URL)
	assert.Equal(t, "https://http2.mlstatic.com/laptop.jpg", first.ImageURL)
	assert.Equal(t, "TiendaPro", first.Seller)
	assert.Equal(t, "Lima", first.Location)
	assert.True(t, first.FreeShipping)
	assert.Equal(t, 4.5, first.Rating)
	assert.Equal(t, config.SiteMercadoLibre, first.Site)
	assert.Equal(t, "MercadoLibre", first.Source)
	assert.True(t, first.Available)

	second := got[1]
	assert.Equal(t, "Televisor Samsung 50 pulgadas", second.Title)
	assert.Equal(t, 1299.0, second.Price)
	assert.Equal(t, "https://articulo.mercadolibre.com.pe/MPE-9", second.URL)
	assert.Equal(t, types.UnknownSeller, second.Seller)
	assert.Empty(t, second.Location)
	assert.Empty(t, second.ImageURL)
	assert.False(t, second.FreeShipping)
	assert.Zero(t, second.Rating)

	assert.Equal(t, "Mouse Logitech M170", got[2].Title)
	assert.Equal(t, "https://http2.mlstatic.com/mouse.jpg", got[2].ImageURL)
}

func TestMercadoLibreSearchLimit(t *testing.T) {
	server, _ := fixtureServer(t, mercadoLibreFixture)
	ml := newTestMercadoLibre(server.URL)
	session := httpSession(t)

	for _, limit := range []int{-1, 0, 1, 2, 3, 4, 50} {
		got := ml.Search(context.Background(), session, "laptop", limit)
		assert.LessOrEqual(t, len(got), max(limit, 0), "limit %d", limit)
		assert.NotNil(t, got)
	}

	// the empty third card counts against the limit
	assert.Len(t, ml.Search(context.Background(), session, "laptop", 3), 2)
}

func TestMercadoLibreNoCards(t *testing.T) {
	server, _ := fixtureServer(t, `<html><body><p>No hay publicaciones</p></body></html>`)
	got := newTestMercadoLibre(server.URL).Search(context.Background(), httpSession(t), "xyz", 3)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMercadoLibreIgnoresStructuredData(t *testing.T) {
	// Falabella falls back to JSON-LD; MercadoLibre only reads result cards.
	server, _ := fixtureServer(t, falabellaJSONFixture)
	got := newTestMercadoLibre(server.URL).Search(context.Background(), httpSession(t), "sony", 3)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMercadoLibreClassPatternFallback(t *testing.T) {
	html := `<div class="andes-card ui-search-result--core">
	  <a class="poly-component__title" href="https://articulo.mercadolibre.com.pe/MPE-1">Celular Xiaomi Redmi 13</a>
	  <span class="andes-money-amount">S/ 649</span>
	</div>`
	server, _ := fixtureServer(t, html)

	got := newTestMercadoLibre(server.URL).Search(context.Background(), httpSession(t), "xiaomi", 3)
	require.Len(t, got, 1)
	assert.Equal(t, "Celular Xiaomi Redmi 13", got[0].Title)
	assert.Equal(t, 649.0, got[0].Price)
}

func TestMercadoLibreLinkResolution(t *testing.T) {
	ml := NewMercadoLibre(config.SiteConfig{BaseURL: "https://listado.mercadolibre.com.pe/", Delay: 2 * time.Second}, testLogger)

	assert.Equal(t, "https://listado.mercadolibre.com.pe/iphone+15", ml.SearchURL("iphone 15"))
	assert.Equal(t, "https://mercadolibre.com.pe/MPE-1", ml.resolveLink("/MPE-1"))
	assert.Equal(t, "https://articulo.mercadolibre.com.pe/x", ml.resolveLink("articulo.mercadolibre.com.pe/x"))
	assert.Equal(t, "https://cdn.pe/x", ml.resolveLink("//cdn.pe/x"))
	assert.Equal(t, "http://a.pe/x", ml.resolveLink("http://a.pe/x"))
	assert.Equal(t, 2*time.Second, ml.Delay())
}

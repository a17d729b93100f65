package sitemap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/siteaudit/pkg/fetcher"
)

const urlSetXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc></url>
  <url><loc> https://example.com/about </loc></url>
  <url><loc></loc></url>
</urlset>`

const indexXML = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`

func TestParseURLSet(t *testing.T) {
	urls, err := ParseURLSet([]byte(urlSetXML))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/", "https://example.com/about"}, urls)

	_, err = ParseURLSet([]byte(indexXML))
	assert.Error(t, err)

	_, err = ParseURLSet([]byte(`<not valid xml<<<`))
	assert.Error(t, err)
}

func TestParseIndex(t *testing.T) {
	urls, err := ParseIndex([]byte(indexXML))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/sitemap-posts.xml",
		"https://example.com/sitemap-pages.xml",
	}, urls)
}

// sitemapServer serves the given path -> body map and counts hits per path.
type sitemapServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newSitemapServer(t *testing.T, files func(base string) map[string]string) *sitemapServer {
	t.Helper()
	s := &sitemapServer{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		body, ok := files(s.URL)[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func TestDiscoverSitemapXML(t *testing.T) {
	s := newSitemapServer(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap.xml": `<urlset><url><loc>` + base + `/a</loc></url><url><loc>` + base + `/a</loc></url><url><loc>` + base + `/b</loc></url></urlset>`,
		}
	})

	urls := New(fetcher.New(fetcher.Options{})).Discover(context.Background(), s.URL+"/")
	assert.Equal(t, []string{s.URL + "/a", s.URL + "/b"}, urls)
	assert.Zero(t, s.hits["/sitemap_index.xml"])
}

func TestDiscoverFallsBackToIndexAndRobots(t *testing.T) {
	s := newSitemapServer(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap_index.xml": `<sitemapindex><sitemap><loc>` + base + `/pages.xml</loc></sitemap></sitemapindex>`,
			"/pages.xml":         `<urlset><url><loc>` + base + `/from-index</loc></url></urlset>`,
		}
	})

	urls := New(fetcher.New(fetcher.Options{})).Discover(context.Background(), s.URL)
	assert.Equal(t, []string{s.URL + "/from-index"}, urls)

	r := newSitemapServer(t, func(base string) map[string]string {
		return map[string]string{
			"/custom-map.xml": `<urlset><url><loc>` + base + `/from-robots</loc></url></urlset>`,
		}
	})
	urls = New(fetcher.New(fetcher.Options{})).Discover(context.Background(), r.URL, r.URL+"/custom-map.xml")
	assert.Equal(t, []string{r.URL + "/from-robots"}, urls)
}

func TestDiscoverSelfReferencingIndexTerminates(t *testing.T) {
	s := newSitemapServer(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap.xml": `<sitemapindex>
				<sitemap><loc>` + base + `/sitemap.xml</loc></sitemap>
				<sitemap><loc>` + base + `/loop-a.xml</loc></sitemap>
			</sitemapindex>`,
			"/loop-a.xml": `<sitemapindex><sitemap><loc>` + base + `/loop-b.xml</loc></sitemap></sitemapindex>`,
			"/loop-b.xml": `<sitemapindex><sitemap><loc>` + base + `/loop-c.xml</loc></sitemap></sitemapindex>`,
			"/loop-c.xml": `<urlset><url><loc>` + base + `/too-deep</loc></url></urlset>`,
		}
	})

	urls := New(fetcher.New(fetcher.Options{})).Discover(context.Background(), s.URL)
	assert.Empty(t, urls)
	assert.Equal(t, 1, s.hits["/sitemap.xml"])
	assert.Equal(t, 1, s.hits["/loop-b.xml"])
	assert.Zero(t, s.hits["/loop-c.xml"], "depth beyond the bound must not be fetched")
}

func TestDiscoverMalformedOrMissing(t *testing.T) {
	s := newSitemapServer(t, func(string) map[string]string {
		return map[string]string{"/sitemap.xml": `<urlset><url><loc>broken`}
	})

	urls := New(fetcher.New(fetcher.Options{})).Discover(context.Background(), s.URL)
	assert.NotNil(t, urls)
	assert.Empty(t, urls)
}

func TestDiscoverRespectsMaxURLs(t *testing.T) {
	s := newSitemapServer(t, func(base string) map[string]string {
		return map[string]string{
			"/sitemap.xml": `<urlset><url><loc>` + base + `/1</loc></url><url><loc>` + base + `/2</loc></url><url><loc>` + base + `/3</loc></url></urlset>`,
		}
	})

	urls := New(fetcher.New(fetcher.Options{}), WithMaxURLs(2)).Discover(context.Background(), s.URL)
	assert.Len(t, urls, 2)
}

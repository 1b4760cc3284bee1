package extractor

import (
	"net/url"
	"regexp"
	"testing"

	"github.com/ramkansal/tagscout/pkg/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	scripts   []plugin.Element
	noscripts []plugin.Element
}

func (d fakeDoc) Scripts() []plugin.Element   { return d.scripts }
func (d fakeDoc) NoScripts() []plugin.Element { return d.noscripts }

func mustBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestPatternMatches(t *testing.T) {
	p := Pattern{
		Src:     []*regexp.Regexp{regexp.MustCompile(`vendor\.js`)},
		Content: []*regexp.Regexp{regexp.MustCompile(`vendorInit\(`)},
		ID:      []*regexp.Regexp{regexp.MustCompile(`^vendor-tag$`)},
		Class:   []*regexp.Regexp{regexp.MustCompile(`\bvendor\b`)},
	}

	assert.True(t, p.Matches(plugin.Element{Src: "https://cdn.example.com/vendor.js"}))
	assert.True(t, p.Matches(plugin.Element{Content: "vendorInit('x')"}))
	assert.True(t, p.Matches(plugin.Element{ID: "vendor-tag"}))
	assert.True(t, p.Matches(plugin.Element{Class: "lazy vendor"}))
	assert.False(t, p.Matches(plugin.Element{Src: "https://cdn.example.com/other.js", Content: "other()"}))
	assert.False(t, p.Matches(plugin.Element{}))
}

func TestPatternMatchesIgnoresEmptyValues(t *testing.T) {
	p := Pattern{Src: []*regexp.Regexp{regexp.MustCompile(`.*`)}}
	assert.False(t, p.Matches(plugin.Element{Content: "anything"}))
}

func TestRegistry(t *testing.T) {
	extra := Pattern{Name: "Custom", Category: plugin.CategoryFunctionality}
	r := NewRegistry(extra)

	names := r.Names()
	require.Len(t, names, 12)
	assert.Equal(t, "Google Analytics 4", names[0])
	assert.Equal(t, "Custom", names[len(names)-1])

	p, ok := r.Lookup("Hotjar")
	require.True(t, ok)
	assert.Equal(t, plugin.CategoryTrackingPerformance, p.Category)

	_, ok = r.Lookup("Nope")
	assert.False(t, ok)

	patterns := r.Patterns()
	patterns[0].Name = "mutated"
	assert.Equal(t, "Google Analytics 4", r.Names()[0])
}

func TestBuiltinCategoriesValid(t *testing.T) {
	for _, p := range NewRegistry().Patterns() {
		assert.Truef(t, p.Category.Valid(), "%s has category %q", p.Name, p.Category)
		assert.NotNilf(t, p.Extract, "%s has no extractor", p.Name)
	}
}

func TestVendorExtraction(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		el      plugin.Element
		doc     plugin.Document
		want    []string
		body    string
	}{
		{
			name:    "ga4 from src",
			pattern: googleAnalytics4,
			el:      plugin.Element{Src: "https://www.googletagmanager.com/gtag/js?id=G-ABC1234"},
			want:    []string{"gtag/js?id=G-ABC1234", "gtag('config', 'G-ABC1234');"},
		},
		{
			name:    "universal analytics from inline",
			pattern: googleAnalyticsUniversal,
			el:      plugin.Element{Content: "ga('create', 'UA-1234567-2', 'auto');"},
			want:    []string{"ga('create', 'UA-1234567-2', 'auto');", "analytics.js"},
		},
		{
			name:    "gtm from inline",
			pattern: googleTagManager,
			el:      plugin.Element{Content: "})(window,document,'script','dataLayer','GTM-ABCDEF');"},
			want:    []string{"'dataLayer','GTM-ABCDEF'"},
			body:    "ns.html?id=GTM-ABCDEF",
		},
		{
			name:    "facebook id from noscript",
			pattern: facebookPixel,
			el:      plugin.Element{Content: "fbq('track', 'PageView');"},
			doc: fakeDoc{noscripts: []plugin.Element{{
				Tag:     "noscript",
				Content: `<img src="https://www.facebook.com/tr?id=987654321012&ev=PageView&noscript=1"/>`,
			}}},
			want: []string{"fbq('init', '987654321012');", "tr?id=987654321012&ev=PageView"},
		},
		{
			name:    "clarity project id",
			pattern: microsoftClarity,
			el:      plugin.Element{Src: "https://www.clarity.ms/tag/k3x9p2qz1a"},
			want:    []string{`"clarity", "script", "k3x9p2qz1a"`},
		},
		{
			name:    "hotjar site id",
			pattern: hotjar,
			el:      plugin.Element{Content: "h._hjSettings={hjid:3141592,hjsv:6};"},
			want:    []string{"hjid:3141592,hjsv:6"},
		},
		{
			name:    "linkedin partner id from sibling script",
			pattern: linkedInInsight,
			el:      plugin.Element{Src: "https://snap.licdn.com/li.lms-analytics/insight.min.js"},
			doc: fakeDoc{scripts: []plugin.Element{
				{Tag: "script", Content: `_linkedin_partner_id = "4455667";`},
			}},
			want: []string{`_linkedin_partner_id = "4455667";`, "pid=4455667&fmt=gif"},
		},
		{
			name:    "tiktok pixel code",
			pattern: tiktokPixel,
			el:      plugin.Element{Content: "ttq.load('CABCDEFGH1234567'); ttq.page();"},
			want:    []string{"ttq.load('CABCDEFGH1234567');"},
		},
		{
			name:    "google ads conversion id",
			pattern: googleAds,
			el:      plugin.Element{Content: "gtag('config', 'AW-987654321');"},
			want:    []string{"gtag/js?id=AW-987654321", "gtag('config', 'AW-987654321');"},
		},
		{
			name:    "intercom app id",
			pattern: intercom,
			el:      plugin.Element{Content: `window.intercomSettings = { app_id: "abc123xy" };`},
			want:    []string{`app_id: "abc123xy"`, "widget.intercom.io/widget/abc123xy"},
		},
		{
			name:    "intercom app id with quoted key",
			pattern: intercom,
			el:      plugin.Element{Content: `window.intercomSettings = {"app_id": "abc123xy"};`},
			want:    []string{`app_id: "abc123xy"`, "widget.intercom.io/widget/abc123xy"},
		},
		{
			name:    "zendesk key",
			pattern: zendeskChat,
			el: plugin.Element{
				ID:  "ze-snippet",
				Src: "https://static.zdassets.com/ekr/snippet.js?key=1a2b3c4d-5e6f",
			},
			want: []string{`src="https://static.zdassets.com/ekr/snippet.js?key=1a2b3c4d-5e6f"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.pattern.Matches(tt.el), "fixture must match its own pattern")

			snippet, err := tt.pattern.Extract(tt.el, tt.doc, nil)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, snippet.ScriptCode, want)
			}
			assert.NotContains(t, snippet.ScriptCode, idPlaceholder)
			if tt.body != "" {
				assert.Contains(t, snippet.BodyCode, tt.body)
			} else {
				assert.Empty(t, snippet.BodyCode)
			}
		})
	}
}

func TestFacebookMalformedIDFallsBackToRawContent(t *testing.T) {
	el := plugin.Element{Content: "fbq('init', 'not-a-number'); fbq('track', 'PageView');"}
	require.True(t, facebookPixel.Matches(el))

	snippet, err := facebookPixel.Extract(el, fakeDoc{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<script>"+el.Content+"</script>", snippet.ScriptCode)
}

func TestFallback(t *testing.T) {
	base := mustBase(t, "https://shop.example.com/products/1")

	t.Run("relative src is resolved", func(t *testing.T) {
		s, err := fallback(plugin.Element{Src: "/static/track.js"}, base)
		require.NoError(t, err)
		assert.Equal(t, `<script async src="https://shop.example.com/static/track.js"></script>`, s.ScriptCode)
	})

	t.Run("src is escaped", func(t *testing.T) {
		s, err := fallback(plugin.Element{Src: `https://cdn.example.com/t.js?a=1&b="x"`}, nil)
		require.NoError(t, err)
		assert.Equal(t, `<script async src="https://cdn.example.com/t.js?a=1&amp;b=&#34;x&#34;"></script>`, s.ScriptCode)
	})

	t.Run("inline content verbatim", func(t *testing.T) {
		s, err := fallback(plugin.Element{Content: "trackMe();"}, base)
		require.NoError(t, err)
		assert.Equal(t, "<script>trackMe();</script>", s.ScriptCode)
	})

	t.Run("nothing to fall back on", func(t *testing.T) {
		_, err := fallback(plugin.Element{Content: "  \n "}, base)
		assert.ErrorIs(t, err, ErrNoIdentifier)
	})
}

func TestFindIDPrefersEarlierSources(t *testing.T) {
	res := []*regexp.Regexp{regexp.MustCompile(`id=(\d+)`)}
	assert.Equal(t, "1", findID(res, "", "id=1", "id=2"))
	assert.Equal(t, "", findID(res, "none"))

	whole := []*regexp.Regexp{regexp.MustCompile(`GTM-[A-Z0-9]+`)}
	assert.Equal(t, "GTM-XYZ", findID(whole, "x GTM-XYZ y"))
}

func TestNoCrossVendorMatchesOnGtag(t *testing.T) {
	ga4 := plugin.Element{Content: "gtag('config', 'G-ABCDE12');"}
	ua := plugin.Element{Content: "gtag('config', 'UA-1234567-1');"}
	ads := plugin.Element{Content: "gtag('config', 'AW-123456789');"}

	assert.True(t, googleAnalytics4.Matches(ga4))
	assert.False(t, googleAnalytics4.Matches(ua))
	assert.False(t, googleAnalytics4.Matches(ads))

	assert.True(t, googleAnalyticsUniversal.Matches(ua))
	assert.False(t, googleAnalyticsUniversal.Matches(ga4))

	assert.True(t, googleAds.Matches(ads))
	assert.False(t, googleAds.Matches(ga4))
}

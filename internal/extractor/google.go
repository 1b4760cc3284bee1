package extractor

import (
	"regexp"

	"github.com/ramkansal/tagscout/pkg/plugin"
)

var (
	ga4ID = regexp.MustCompile(`\b(G-[A-Z0-9]{4,})\b`)
	uaID  = regexp.MustCompile(`\b(UA-\d{4,10}-\d{1,4})\b`)
	gtmID = regexp.MustCompile(`\b(GTM-[A-Z0-9]{4,})\b`)
	adsID = regexp.MustCompile(`\b(AW-\d{6,})\b`)
)

const gtagTemplate = `<script async src="https://www.googletagmanager.com/gtag/js?id={{id}}"></script>
<script>
  window.dataLayer = window.dataLayer || [];
  function gtag(){dataLayer.push(arguments);}
  gtag('js', new Date());
  gtag('config', '{{id}}');
</script>`

const analyticsJSTemplate = `<script>
(function(i,s,o,g,r,a,m){i['GoogleAnalyticsObject']=r;i[r]=i[r]||function(){
(i[r].q=i[r].q||[]).push(arguments)},i[r].l=1*new Date();a=s.createElement(o),
m=s.getElementsByTagName(o)[0];a.async=1;a.src=g;m.parentNode.insertBefore(a,m)
})(window,document,'script','https://www.google-analytics.com/analytics.js','ga');
ga('create', '{{id}}', 'auto');
ga('send', 'pageview');
</script>`

const gtmTemplate = `<script>(function(w,d,s,l,i){w[l]=w[l]||[];w[l].push({'gtm.start':
new Date().getTime(),event:'gtm.js'});var f=d.getElementsByTagName(s)[0],
j=d.createElement(s),dl=l!='dataLayer'?'&l='+l:'';j.async=true;j.src=
'https://www.googletagmanager.com/gtm.js?id='+i+dl;f.parentNode.insertBefore(j,f);
})(window,document,'script','dataLayer','{{id}}');</script>`

const gtmNoscriptTemplate = `<noscript><iframe src="https://www.googletagmanager.com/ns.html?id={{id}}"
height="0" width="0" style="display:none;visibility:hidden"></iframe></noscript>`

var googleAnalytics4 = Pattern{
	Name:     "Google Analytics 4",
	Category: plugin.CategoryTrackingPerformance,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`googletagmanager\.com/gtag/js\?(?:.*&)?id=G-`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`gtag\(\s*['"]config['"]\s*,\s*['"]G-[A-Z0-9]+`),
	},
	Extract: idExtractor([]*regexp.Regexp{ga4ID}, elementOnly, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(gtagTemplate, id)}
	}),
}

var googleAnalyticsUniversal = Pattern{
	Name:     "Google Analytics (Universal)",
	Category: plugin.CategoryTrackingPerformance,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`google-analytics\.com/(?:analytics|ga)\.js`),
		regexp.MustCompile(`googletagmanager\.com/gtag/js\?(?:.*&)?id=UA-`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`\bga\(\s*['"]create['"]`),
		regexp.MustCompile(`_gaq\.push`),
		regexp.MustCompile(`gtag\(\s*['"]config['"]\s*,\s*['"]UA-\d+`),
	},
	Extract: idExtractor([]*regexp.Regexp{uaID}, elementOnly, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(analyticsJSTemplate, id)}
	}),
}

var googleTagManager = Pattern{
	Name:     "Google Tag Manager",
	Category: plugin.CategoryTrackingPerformance,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`googletagmanager\.com/gtm\.js`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`googletagmanager\.com/gtm\.js`),
		regexp.MustCompile(`\bGTM-[A-Z0-9]+\b`),
	},
	Extract: idExtractor([]*regexp.Regexp{gtmID}, withNoscript, func(id string) plugin.Snippet {
		return plugin.Snippet{
			ScriptCode: render(gtmTemplate, id),
			BodyCode:   render(gtmNoscriptTemplate, id),
		}
	}),
}

var googleAds = Pattern{
	Name:     "Google Ads",
	Category: plugin.CategoryTargetingAdvertising,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`googletagmanager\.com/gtag/js\?(?:.*&)?id=AW-`),
		regexp.MustCompile(`googleadservices\.com/pagead/conversion(?:_async)?\.js`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`gtag\(\s*['"]config['"]\s*,\s*['"]AW-\d+`),
		regexp.MustCompile(`['"]send_to['"]\s*:\s*['"]AW-\d+`),
		regexp.MustCompile(`google_conversion_id\s*=`),
	},
	Extract: idExtractor([]*regexp.Regexp{adsID}, elementOnly, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(gtagTemplate, id)}
	}),
}

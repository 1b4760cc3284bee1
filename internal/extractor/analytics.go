package extractor

import (
	"regexp"

	"github.com/ramkansal/tagscout/pkg/plugin"
)

const clarityTemplate = `<script type="text/javascript">
    (function(c,l,a,r,i,t,y){
        c[a]=c[a]||function(){(c[a].q=c[a].q||[]).push(arguments)};
        t=l.createElement(r);t.async=1;t.src="https://www.clarity.ms/tag/"+i;
        y=l.getElementsByTagName(r)[0];y.parentNode.insertBefore(t,y);
    })(window, document, "clarity", "script", "{{id}}");
</script>`

const hotjarTemplate = `<script>
    (function(h,o,t,j,a,r){
        h.hj=h.hj||function(){(h.hj.q=h.hj.q||[]).push(arguments)};
        h._hjSettings={hjid:{{id}},hjsv:6};
        a=o.getElementsByTagName('head')[0];
        r=o.createElement('script');r.async=1;
        r.src=t+h._hjSettings.hjid+j+h._hjSettings.hjsv;
        a.appendChild(r);
    })(window,document,'https://static.hotjar.com/c/hotjar-','.js?sv=');
</script>`

var microsoftClarity = Pattern{
	Name:     "Microsoft Clarity",
	Category: plugin.CategoryTrackingPerformance,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`clarity\.ms/tag/`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`clarity\.ms/tag/`),
		regexp.MustCompile(`\(\s*c\s*,\s*l\s*,\s*a\s*,\s*r\s*,\s*i\s*,\s*t\s*,\s*y\s*\)`),
	},
	Extract: idExtractor([]*regexp.Regexp{
		regexp.MustCompile(`clarity\.ms/tag/([a-z0-9]{6,})`),
		regexp.MustCompile(`["']clarity["']\s*,\s*["']script["']\s*,\s*["']([a-z0-9]{6,})["']`),
	}, elementOnly, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(clarityTemplate, id)}
	}),
}

var hotjar = Pattern{
	Name:     "Hotjar",
	Category: plugin.CategoryTrackingPerformance,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`static\.hotjar\.com/c/hotjar-`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`static\.hotjar\.com`),
		regexp.MustCompile(`_hjSettings`),
	},
	Extract: idExtractor([]*regexp.Regexp{
		regexp.MustCompile(`hjid\s*:\s*(\d+)`),
		regexp.MustCompile(`hotjar-(\d+)\.js`),
	}, elementOnly, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(hotjarTemplate, id)}
	}),
}

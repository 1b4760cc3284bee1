package extractor

import (
	"regexp"

	"github.com/ramkansal/tagscout/pkg/plugin"
)

// Customer support and chat widgets.

const intercomTemplate = `<script>
  window.intercomSettings = {
    api_base: "https://api-iam.intercom.io",
    app_id: "{{id}}"
  };
</script>
<script>
(function(){var w=window;var ic=w.Intercom;if(typeof ic==="function"){ic('reattach_activator');ic('update',w.intercomSettings);}else{var d=document;var i=function(){i.c(arguments);};i.q=[];i.c=function(args){i.q.push(args);};w.Intercom=i;var l=function(){var s=d.createElement('script');s.type='text/javascript';s.async=true;s.src='https://widget.intercom.io/widget/{{id}}';var x=d.getElementsByTagName('script')[0];x.parentNode.insertBefore(s,x);};if(document.readyState==='complete'){l();}else if(w.attachEvent){w.attachEvent('onload',l);}else{w.addEventListener('load',l,false);}}})();
</script>`

const zendeskTemplate = `<script id="ze-snippet" src="https://static.zdassets.com/ekr/snippet.js?key={{id}}"></script>`

var intercom = Pattern{
	Name:     "Intercom",
	Category: plugin.CategoryFunctionality,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`widget\.intercom\.io/widget/`),
		regexp.MustCompile(`js\.intercomcdn\.com/`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`intercomSettings`),
		regexp.MustCompile(`widget\.intercom\.io/widget/`),
		regexp.MustCompile(`\bIntercom\(\s*['"]boot['"]`),
	},
	Extract: idExtractor([]*regexp.Regexp{
		regexp.MustCompile(`app_id["']?\s*:\s*["']([a-z0-9]{6,})["']`),
		regexp.MustCompile(`widget\.intercom\.io/widget/([a-z0-9]{6,})`),
	}, withPageScripts, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(intercomTemplate, id)}
	}),
}

var zendeskChat = Pattern{
	Name:     "Zendesk Chat",
	Category: plugin.CategoryFunctionality,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`static\.zdassets\.com/ekr/snippet\.js`),
		regexp.MustCompile(`v2\.zopim\.com/`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`\bzESettings\b`),
		regexp.MustCompile(`\bzE\(`),
	},
	ID: []*regexp.Regexp{
		regexp.MustCompile(`^ze-snippet$`),
	},
	Extract: idExtractor([]*regexp.Regexp{
		regexp.MustCompile(`snippet\.js\?key=([A-Za-z0-9-]{8,})`),
	}, withPageScripts, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(zendeskTemplate, id)}
	}),
}

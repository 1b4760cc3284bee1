package extractor

import (
	"regexp"

	"github.com/ramkansal/tagscout/pkg/plugin"
)

// Advertising pixels of the social networks.

const facebookTemplate = `<script>
!function(f,b,e,v,n,t,s)
{if(f.fbq)return;n=f.fbq=function(){n.callMethod?
n.callMethod.apply(n,arguments):n.queue.push(arguments)};
if(!f._fbq)f._fbq=n;n.push=n;n.loaded=!0;n.version='2.0';
n.queue=[];t=b.createElement(e);t.async=!0;
t.src=v;s=b.getElementsByTagName(e)[0];
s.parentNode.insertBefore(t,s)}(window, document,'script',
'https://connect.facebook.net/en_US/fbevents.js');
fbq('init', '{{id}}');
fbq('track', 'PageView');
</script>
<noscript><img height="1" width="1" style="display:none"
src="https://www.facebook.com/tr?id={{id}}&ev=PageView&noscript=1"/></noscript>`

const linkedInTemplate = `<script type="text/javascript">
_linkedin_partner_id = "{{id}}";
window._linkedin_data_partner_ids = window._linkedin_data_partner_ids || [];
window._linkedin_data_partner_ids.push(_linkedin_partner_id);
</script>
<script type="text/javascript">
(function(l) {
if (!l){window.lintrk = function(a,b){window.lintrk.q.push([a,b])};
window.lintrk.q=[]}
var s = document.getElementsByTagName("script")[0];
var b = document.createElement("script");
b.type = "text/javascript";b.async = true;
b.src = "https://snap.licdn.com/li.lms-analytics/insight.min.js";
s.parentNode.insertBefore(b, s);})(window.lintrk);
</script>
<noscript><img height="1" width="1" style="display:none;" alt=""
src="https://px.ads.linkedin.com/collect/?pid={{id}}&fmt=gif" /></noscript>`

const tiktokTemplate = `<script>
!function (w, d, t) {
  w.TiktokAnalyticsObject=t;var ttq=w[t]=w[t]||[];ttq.methods=["page","track","identify","instances","debug","on","off","once","ready","alias","group","enableCookie","disableCookie"],ttq.setAndDefer=function(t,e){t[e]=function(){t.push([e].concat(Array.prototype.slice.call(arguments,0)))}};for(var i=0;i<ttq.methods.length;i++)ttq.setAndDefer(ttq,ttq.methods[i]);ttq.instance=function(t){for(var e=ttq._i[t]||[],n=0;n<ttq.methods.length;n++)ttq.setAndDefer(e,ttq.methods[n]);return e},ttq.load=function(e,n){var i="https://analytics.tiktok.com/i18n/pixel/events.js";ttq._i=ttq._i||{},ttq._i[e]=[],ttq._i[e]._u=i,ttq._t=ttq._t||{},ttq._t[e]=+new Date,ttq._o=ttq._o||{},ttq._o[e]=n||{};var o=document.createElement("script");o.type="text/javascript",o.async=!0,o.src=i+"?sdkid="+e+"&lib="+t;var a=document.getElementsByTagName("script")[0];a.parentNode.insertBefore(o,a)};
  ttq.load('{{id}}');
  ttq.page();
}(window, document, 'ttq');
</script>`

var facebookPixel = Pattern{
	Name:     "Facebook Pixel",
	Category: plugin.CategoryTargetingAdvertising,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`connect\.facebook\.net/[^"'?]*/fbevents\.js`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`\bfbq\(`),
		regexp.MustCompile(`connect\.facebook\.net/[^"'?]*/fbevents\.js`),
	},
	Extract: idExtractor([]*regexp.Regexp{
		regexp.MustCompile(`fbq\(\s*['"]init['"]\s*,\s*['"]?(\d{6,20})\b`),
		regexp.MustCompile(`facebook\.com/tr/?\?id=(\d{6,20})\b`),
	}, withNoscript, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(facebookTemplate, id)}
	}),
}

var linkedInInsight = Pattern{
	Name:     "LinkedIn Insight Tag",
	Category: plugin.CategoryTargetingAdvertising,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`snap\.licdn\.com/li\.lms-analytics/insight\.min\.js`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`_linkedin_partner_id`),
		regexp.MustCompile(`_linkedin_data_partner_ids`),
		regexp.MustCompile(`snap\.licdn\.com/li\.lms-analytics`),
	},
	Extract: idExtractor([]*regexp.Regexp{
		regexp.MustCompile(`_linkedin_partner_id\s*=\s*["']?(\d{3,})`),
		regexp.MustCompile(`_linkedin_data_partner_ids\.push\(\s*["']?(\d{3,})`),
		regexp.MustCompile(`px\.ads\.linkedin\.com/collect/?\?pid=(\d{3,})`),
	}, withNoscript|withPageScripts, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(linkedInTemplate, id)}
	}),
}

var tiktokPixel = Pattern{
	Name:     "TikTok Pixel",
	Category: plugin.CategoryTargetingAdvertising,
	Src: []*regexp.Regexp{
		regexp.MustCompile(`analytics\.tiktok\.com/i18n/pixel/`),
	},
	Content: []*regexp.Regexp{
		regexp.MustCompile(`\bttq\.load\(`),
		regexp.MustCompile(`TiktokAnalyticsObject`),
	},
	Extract: idExtractor([]*regexp.Regexp{
		regexp.MustCompile(`ttq\.load\(\s*['"]([A-Z0-9]{8,})['"]`),
		regexp.MustCompile(`sdkid=([A-Z0-9]{8,})\b`),
	}, elementOnly, func(id string) plugin.Snippet {
		return plugin.Snippet{ScriptCode: render(tiktokTemplate, id)}
	}),
}

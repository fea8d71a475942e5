package sitedoc

import (
	"fmt"
	"html"
	"strings"
)

// templateStyles maps each template to its body styling.
var templateStyles = map[TemplateID]string{
	TemplateEnterpriseBase:  "background: radial-gradient(circle at top right, #f8fafc, #ffffff);",
	TemplateModernPortfolio: "background: #0f172a; color: white;",
	TemplateSaasLanding:     "background: #ffffff; color: #1e293b; --primary: #4f46e5;",
}

// Render maps a template and an ordered section list to a complete
// HTML document. It is pure and total: every supported widget renders a
// visible block, and an unsupported widget renders a marked placeholder
// so one bad section never blanks the page.
func Render(template TemplateID, sections []Section) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&b, "<style>body { font-family: sans-serif; margin: 0; padding: 0; min-height: 100vh; %s }</style>\n", templateStyles[template])
	b.WriteString("</head>\n<body>\n<div id=\"sections-container\">\n")

	if len(sections) == 0 {
		fmt.Fprintf(&b, "<div class=\"empty-state\"><p>%s</p><p>Canvas initialized. Add sections to build.</p></div>\n",
			html.EscapeString(string(template)))
	}

	for _, section := range sections {
		fmt.Fprintf(&b, "<div class=\"section-wrapper\" id=\"%s\">\n", html.EscapeString(section.ID))
		b.WriteString(renderSection(section))
		b.WriteString("</div>\n")
	}

	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}

// RenderPage renders one page of a document.
func RenderPage(doc *SiteDocument, pageID string) string {
	page := doc.PageByID(pageID)
	if page == nil {
		page = doc.HomePage()
	}
	if page == nil {
		return Render(doc.TemplateID, nil)
	}
	return Render(doc.TemplateID, page.Sections)
}

func renderSection(section Section) string {
	typed := section.Attrs
	if typed == nil {
		typed = DecodeAttributes(section.Type, nil)
	}
	switch attrs := typed.(type) {
	case HeaderAttributes:
		return renderHeader(attrs)
	case HeroAttributes:
		return renderHero(attrs)
	case GridAttributes:
		return renderGrid(attrs)
	case PricingAttributes:
		return renderPricing(attrs)
	case ContactAttributes:
		return renderContact(attrs)
	}
	return fmt.Sprintf("<div class=\"unknown-component\">Unknown component: %s</div>\n",
		html.EscapeString(string(section.Type)))
}

func renderHeader(a HeaderAttributes) string {
	brand := a.Brand
	if brand == "" {
		brand = "Your Brand"
	}
	return fmt.Sprintf(`<nav class="site-header">
<div class="brand">%s</div>
<div class="nav-links"><a href="#">Features</a><a href="#">Case Studies</a><a href="#">Enterprise</a></div>
<button class="cta">Get Started</button>
</nav>
`, html.EscapeString(brand))
}

func renderHero(a HeroAttributes) string {
	title := a.Title
	if title == "" {
		title = "Build the Intelligent Future."
	}
	subtitle := a.Subtitle
	if subtitle == "" {
		subtitle = "Next-generation brand scaling, grounded in enterprise knowledge."
	}
	btn1Text := a.Btn1Text
	if btn1Text == "" {
		btn1Text = "Launch Dashboard"
	}
	btn1Link := a.Btn1Link
	if btn1Link == "" {
		btn1Link = "#"
	}
	btn2Text := a.Btn2Text
	if btn2Text == "" {
		btn2Text = "Documentation"
	}
	return fmt.Sprintf(`<header class="hero">
<h1 id="hero-title">%s</h1>
<p id="hero-subtitle">%s</p>
<div class="hero-actions"><a class="primary" href="%s">%s</a><button class="secondary">%s</button></div>
</header>
`,
		html.EscapeString(title),
		html.EscapeString(subtitle),
		html.EscapeString(btn1Link),
		html.EscapeString(btn1Text),
		html.EscapeString(btn2Text))
}

func renderGrid(a GridAttributes) string {
	items := a.Items
	if len(items) == 0 {
		items = []GridItem{
			{Title: "Autonomous Agents", Body: "Scaling infrastructure that adapts to your corporate identity in real time."},
			{Title: "Knowledge Storage", Body: "Grounded answers drawn from your own brand documents."},
			{Title: "Global Sync", Body: "One source of truth across every channel."},
		}
	}
	var b strings.Builder
	b.WriteString("<section class=\"grid\">\n")
	if a.Heading != "" {
		fmt.Fprintf(&b, "<h2>%s</h2>\n", html.EscapeString(a.Heading))
	}
	for _, item := range items {
		fmt.Fprintf(&b, "<div class=\"card\"><h3>%s</h3><p>%s</p></div>\n",
			html.EscapeString(item.Title), html.EscapeString(item.Body))
	}
	b.WriteString("</section>\n")
	return b.String()
}

func renderPricing(a PricingAttributes) string {
	plans := a.Plans
	if len(plans) == 0 {
		plans = []PricingPlan{
			{Name: "Pro Plan", Price: "$199/mo"},
			{Name: "Enterprise", Price: "Custom"},
		}
	}
	var b strings.Builder
	b.WriteString("<section class=\"pricing\">\n")
	for _, plan := range plans {
		fmt.Fprintf(&b, "<div class=\"plan\"><p class=\"price\">%s</p><button>%s</button></div>\n",
			html.EscapeString(plan.Price), html.EscapeString(plan.Name))
	}
	b.WriteString("</section>\n")
	return b.String()
}

func renderContact(a ContactAttributes) string {
	heading := a.Heading
	if heading == "" {
		heading = "Ready to Scale?"
	}
	buttonText := a.ButtonText
	if buttonText == "" {
		buttonText = "Get in Touch"
	}
	return fmt.Sprintf(`<section class="contact">
<h2>%s</h2>
<button>%s</button>
</section>
`, html.EscapeString(heading), html.EscapeString(buttonText))
}

// Package knowledge assembles the grounding text block ("RAG store") the
// assistant threads into every model call. The block is a fresh
// projection of the tenant's onboarding profile; it is never persisted.
package knowledge

import (
	"fmt"
	"strings"

	"brandos/internal/types"
)

// NoContext is returned when the tenant has no onboarding profile yet.
const NoContext = "No brand context available. The tenant has not completed onboarding."

// BuildContext renders a deterministic, human- and model-readable block
// enumerating every populated profile field. Total over any input: a nil
// or empty profile yields the NoContext sentinel.
func BuildContext(profile *types.Profile) string {
	if profile == nil || isEmpty(profile) {
		return NoContext
	}

	var b strings.Builder
	b.WriteString("## Company Identity\n")
	writeField(&b, "Company", profile.CompanyName)
	writeField(&b, "Industry", profile.Industry)
	writeField(&b, "Brand Voice", profile.BrandVoice)
	writeField(&b, "Tagline", profile.Tagline)
	writeField(&b, "Mission", profile.Mission)

	if len(profile.ValueProps) > 0 {
		b.WriteString("\n## Value Propositions\n")
		for _, vp := range profile.ValueProps {
			if vp = strings.TrimSpace(vp); vp != "" {
				fmt.Fprintf(&b, "- %s\n", vp)
			}
		}
	}

	if len(profile.Offerings) > 0 {
		b.WriteString("\n## Offerings Portfolio\n")
		for _, o := range profile.Offerings {
			if strings.TrimSpace(o.Name) == "" {
				continue
			}
			fmt.Fprintf(&b, "### %s", o.Name)
			if o.Type != "" {
				fmt.Fprintf(&b, " (%s)", o.Type)
			}
			b.WriteString("\n")
			writeField(&b, "Description", o.Description)
			writeField(&b, "Audience", o.Audience)
			if len(o.Features) > 0 {
				fmt.Fprintf(&b, "Features: %s\n", strings.Join(o.Features, ", "))
			}
			writeField(&b, "Differentiator", o.Differentiator)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeField(b *strings.Builder, label, value string) {
	if v := strings.TrimSpace(value); v != "" {
		fmt.Fprintf(b, "%s: %s\n", label, v)
	}
}

func isEmpty(p *types.Profile) bool {
	return p.CompanyName == "" && p.Industry == "" && p.BrandVoice == "" &&
		p.Mission == "" && p.Tagline == "" &&
		len(p.ValueProps) == 0 && len(p.Offerings) == 0
}

package placeholder

import (
	"fmt"
	"strings"
)

// AssetContext maps already-written asset keys to their reference paths
// or URLs. It is supplied by the asset-writing caller before a resolution
// pass; the engine only reads it. Conventional keys: "leaderboard",
// "heatmap", plus "_light"/"_dark" variants.
type AssetContext map[string]string

const themedSuffix = "_themed"

// resolveAsset looks up an SVG placeholder key. A key ending in "_themed"
// expands to <picture> markup that switches between the light and dark
// variants; a plain key returns its reference verbatim. Missing keys or a
// nil context return false so the orchestrator substitutes the fallback.
func resolveAsset(assets AssetContext, key string) (string, bool) {
	if assets == nil {
		return "", false
	}
	if base, ok := strings.CutSuffix(key, themedSuffix); ok {
		light, okLight := assets[base+"_light"]
		dark, okDark := assets[base+"_dark"]
		if !okLight || !okDark {
			return "", false
		}
		return themedMarkup(base, light, dark), true
	}
	ref, ok := assets[key]
	if !ok || ref == "" {
		return "", false
	}
	return ref, true
}

func themedMarkup(name, light, dark string) string {
	return fmt.Sprintf(
		`<picture><source media="(prefers-color-scheme: dark)" srcset="%s"><img src="%s" alt="%s"></picture>`,
		dark, light, name,
	)
}

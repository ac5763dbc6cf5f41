package tool

import (
	"fmt"
	"strings"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

type cropAdvice struct {
	planting   string
	pests      string
	harvesting string
}

var cropAdviceDB = map[string]cropAdvice{
	"maize": {
		planting:   "Plant maize during the rainy season with spacing of 75cm x 25cm. Use 18-6-12 or 15-15-15 fertilizer at planting.",
		pests:      "Common pests include stem borers and fall armyworm. Use appropriate insecticides and crop rotation.",
		harvesting: "Harvest when cobs are fully developed and kernels are in the dough stage, typically 90-120 days after planting.",
	},
	"rice": {
		planting:   "Prepare well-leveled fields with proper water management. Transplant seedlings at 20x20cm spacing.",
		pests:      "Watch for brown planthopper and rice stem borer. Maintain proper water levels to reduce pest pressure.",
		harvesting: "Harvest when 80-85% of grains have turned golden yellow, typically 3-6 months after transplanting.",
	},
	"cassava": {
		planting:   "Plant during early rainy season. Use healthy stem cuttings at 1x1m spacing in well-drained soil.",
		pests:      "Major pests include cassava mosaic disease and green mites. Use disease-free planting materials.",
		harvesting: "Harvest 8-12 months after planting when leaves begin to yellow. Roots can remain in ground for up to 24 months.",
	},
}

func cropAdviceSpec() Spec {
	return Spec{
		Name:        ToolCropAdvice,
		Description: "Get expert farming advice for crops, pests, diseases, and soil management. Use only for specific, detailed farming questions.",
		Parameters: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The specific farming question, e.g. \"how to treat maize stalk borer\"",
			},
		},
		Required: []string{"query"},
	}
}

func executeCropAdvice(args map[string]any) contractx.ToolResult {
	query, ok := stringArg(args, "query")
	if !ok {
		return contractx.ToolResult{Error: "query is required"}
	}

	lower := strings.ToLower(query)
	crop := identifyCrop(lower)
	if crop == "" {
		return contractx.ToolResult{
			Result: "I can provide advice for specific crops like maize, rice, or cassava. Please specify which crop you need advice for.",
		}
	}

	advice := cropAdviceDB[crop]
	var b strings.Builder
	fmt.Fprintf(&b, "*%s Advisory*\n\n", strings.ToUpper(crop[:1])+crop[1:])
	switch {
	case strings.Contains(lower, "plant"):
		fmt.Fprintf(&b, "*Planting Tips:*\n%s\n\n", advice.planting)
	case strings.Contains(lower, "pest") || strings.Contains(lower, "disease") || strings.Contains(lower, "borer"):
		fmt.Fprintf(&b, "*Pest Management:*\n%s\n\n", advice.pests)
	case strings.Contains(lower, "harvest"):
		fmt.Fprintf(&b, "*Harvesting Tips:*\n%s\n\n", advice.harvesting)
	default:
		fmt.Fprintf(&b, "*Planting Tips:*\n%s\n\n", advice.planting)
		fmt.Fprintf(&b, "*Pest Management:*\n%s\n\n", advice.pests)
		fmt.Fprintf(&b, "*Harvesting Tips:*\n%s\n\n", advice.harvesting)
	}
	b.WriteString("For more specific advice, please provide details about your farming conditions.")

	return contractx.ToolResult{Result: b.String()}
}

func identifyCrop(query string) string {
	switch {
	case strings.Contains(query, "maize") || strings.Contains(query, "corn"):
		return "maize"
	case strings.Contains(query, "rice"):
		return "rice"
	case strings.Contains(query, "cassava"):
		return "cassava"
	default:
		return ""
	}
}

package advice

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry pairs a lower-case keyword with its advice text.
type Entry struct {
	Keyword string `yaml:"keyword"`
	Advice  string `yaml:"advice"`
}

// KnowledgeBase is an insertion-ordered list of entries. Order decides which
// keyword wins when a query contains several.
type KnowledgeBase []Entry

// DefaultKnowledgeBase returns the built-in base. "plant" is listed before
// the crop names, so a query mentioning both gets the generic planting
// advice.
func DefaultKnowledgeBase() KnowledgeBase {
	return KnowledgeBase{
		// Planting and timing
		{"plant", "Planting advice: Choose the right season for each crop. Most vegetables grow best in spring and summer."},
		{"when to plant", "Planting timing: Check local climate and soil temperature. Spring is generally best for most crops."},
		{"tomato", "Tomatoes: Plant between May and June when soil is warm (above 15°C). Space plants 45-60cm apart."},
		{"maize", "Maize: Plant in November-December after last frost. Needs well-drained soil and regular watering."},
		{"potato", "Potatoes: Plant in winter (June-August) in cooler areas. Use certified seed potatoes."},
		{"beans", "Beans: Plant in spring after frost danger has passed. They fix nitrogen in the soil."},
		{"cabbage", "Cabbage: Plant in autumn or early winter. Needs rich soil and consistent moisture."},
		{"spinach", "Spinach: Plant in autumn and winter. Prefers cool weather and partial shade."},
		{"carrot", "Carrots: Plant in autumn or early winter. Needs loose, sandy soil."},
		{"onion", "Onions: Plant in autumn for summer harvest. Needs full sun and well-drained soil."},

		// Soil and fertilization
		{"soil", "Soil management: Test your soil pH (ideal 6.0-7.0). Add organic matter like compost regularly."},
		{"fertilizer", "Fertilization: Use balanced NPK fertilizer. Apply during growing season, not too close to harvest."},
		{"compost", "Composting: Mix green and brown materials. Turn pile regularly. Use after 2-3 months."},
		{"ph", "Soil pH: Most vegetables prefer slightly acidic to neutral soil (pH 6.0-7.0)."},
		{"organic", "Organic certification: Follow organic standards, keep records, avoid synthetic chemicals."},

		// Watering
		{"water", "Watering: Water deeply but infrequently. Early morning is best to reduce evaporation."},
		{"drought", "Drought management: Mulch to retain moisture. Water deeply at roots. Choose drought-tolerant varieties."},
		{"irrigation", "Irrigation: Drip irrigation is most efficient. Avoid wetting leaves to prevent diseases."},

		// Pest and disease control
		{"pest", "Pest control: Use integrated pest management. Introduce beneficial insects. Use organic sprays."},
		{"disease", "Disease prevention: Plant disease-resistant varieties. Ensure good air circulation. Remove affected plants."},
		{"fungus", "Fungal diseases: Improve air circulation. Avoid overhead watering. Use copper-based fungicides."},
		{"insect", "Insect pests: Use neem oil spray. Encourage ladybugs and other beneficial insects."},
		{"weed", "Weed control: Mulch to suppress weeds. Hand weed regularly. Use organic herbicides."},

		// Weather and climate
		{"frost", "Frost protection: Cover plants with frost cloth. Use row covers. Plant frost-tolerant varieties."},
		{"rain", "Heavy rain: Ensure good drainage to prevent root rot. Raised beds help in wet areas."},
		{"wind", "Wind protection: Plant windbreaks. Stake tall plants. Use mulch to protect soil."},

		// Harvesting and storage
		{"harvest", "Harvesting: Harvest at peak ripeness. Use clean tools. Store in cool, dry place."},
		{"storage", "Storage: Keep vegetables in cool, humid conditions. Use proper containers to prevent spoilage."},
		{"seed", "Seed saving: Save seeds from healthy plants. Dry thoroughly before storing in cool place."},

		// General farming
		{"sustainable", "Sustainable farming: Rotate crops, use organic methods, conserve water, protect soil."},
		{"small scale", "Small-scale farming: Start small, learn as you grow, focus on high-value crops."},
	}
}

// LoadKnowledgeBase reads an ordered YAML list of {keyword, advice} entries.
// A keyword listed twice keeps its first position and its last advice.
func LoadKnowledgeBase(path string) (KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base: %w", err)
	}

	var raw []Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing knowledge base: %w", err)
	}

	kb := make(KnowledgeBase, 0, len(raw))
	index := make(map[string]int, len(raw))
	for i, e := range raw {
		keyword := strings.ToLower(strings.TrimSpace(e.Keyword))
		if keyword == "" || strings.TrimSpace(e.Advice) == "" {
			return nil, fmt.Errorf("knowledge base entry %d: keyword and advice are required", i)
		}
		if pos, ok := index[keyword]; ok {
			kb[pos].Advice = e.Advice
			continue
		}
		index[keyword] = len(kb)
		kb = append(kb, Entry{Keyword: keyword, Advice: e.Advice})
	}

	if len(kb) == 0 {
		return nil, fmt.Errorf("knowledge base %s has no entries", path)
	}
	return kb, nil
}

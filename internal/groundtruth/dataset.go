// Package groundtruth holds the hard-coded disease knowledge base and the
// resolver that maps a raw model label onto it.
package groundtruth

import "kisandoctor/internal/types"

// HealthyKey is the entry used for plants with no detected condition.
const HealthyKey = "healthy"

// Entry is one knowledge-base row: a technical label token and its advice.
type Entry struct {
	Key    string
	Advice types.Advice
}

// dataset is evaluated in declaration order. Order is part of the contract:
// the first key contained in a label wins.
var dataset = []Entry{
	// TOMATO CLASSES
	{
		Key: "Tomato___Late_blight",
		Advice: types.Advice{
			Explanation:    "This infection is caused by the oomycete pathogen 'Phytophthora infestans'. It typically occurs when leaf surfaces remain wet for over 10 hours and temperatures stay between 15°C and 20°C, allowing fungal spores to germinate and penetrate plant tissue.",
			TreatmentSteps: []string{"Apply Metalaxyl-M or Mancozeb fungicide immediately.", "Remove and burn all infected lower leaves to stop the spread.", "Improve soil drainage to prevent root-zone moisture buildup."},
			PreventionTips: []string{"Space plants 24 inches apart for better wind flow.", "Switch to drip irrigation to keep the leaves dry."},
			IsSafeOrganic:  false,
		},
	},
	{
		Key: "Tomato___Yellow_Leaf_Curl_Virus",
		Advice: types.Advice{
			Explanation:    "This is a viral infection transmitted by the Silverleaf Whitefly. It happens when the pest feeds on an infected host and moves to your crop. The virus disrupts the plant's nutrient flow, causing stunted growth and leaf curling.",
			TreatmentSteps: []string{"Use yellow sticky traps to catch whiteflies.", "Apply a 1% Neem Oil solution every 7 days.", "Pull out and burn heavily infected plants immediately."},
			PreventionTips: []string{"Install insect-proof netting over your nursery.", "Plant resistant varieties like Arka Ananya."},
			IsSafeOrganic:  true,
		},
	},
	{
		Key: "Tomato___Bacterial_spot",
		Advice: types.Advice{
			Explanation:    "Caused by 'Xanthomonas' bacteria, which thrive in warm, humid weather. The bacteria enter through natural openings or wounds in the plant, often spreading via rain splashes or contaminated tools.",
			TreatmentSteps: []string{"Spray Copper-based fungicides (Kocide).", "Disinfect all farming tools with 70% alcohol.", "Prune infected leaves during dry weather only."},
			PreventionTips: []string{"Use only certified disease-free seeds.", "Avoid overhead watering during the evening."},
			IsSafeOrganic:  false,
		},
	},
	// POTATO CLASSES
	{
		Key: "Potato___Early_blight",
		Advice: types.Advice{
			Explanation:    "Caused by the fungus 'Alternaria solani'. It usually attacks plants that are stressed or lacking nutrients. The fungus survives in soil and crop debris, splashing onto lower leaves during irrigation or rainfall.",
			TreatmentSteps: []string{"Apply Chlorothalonil or Azoxystrobin.", "Add extra Nitrogen fertilizer to boost plant strength.", "Clear all crop leftovers from the field after harvest."},
			PreventionTips: []string{"Rotate crops every 3 years (avoid tomato/potato sequence).", "Mulch the soil with straw to prevent soil splash."},
			IsSafeOrganic:  false,
		},
	},
	{
		Key: "Potato___Late_blight",
		Advice: types.Advice{
			Explanation:    "Triggered by 'Phytophthora infestans', the same pathogen behind the Irish Famine. It spreads incredibly fast in cool, misty conditions, turning healthy fields into rot within days.",
			TreatmentSteps: []string{"Apply Cymoxanil or Dimethomorph fungicides.", "Heap more soil around the base to protect the potatoes underground.", "Destroy any old potato piles near the field."},
			PreventionTips: []string{"Plant only certified disease-free seed tubers.", "Watch for high humidity (>90%) which signals danger."},
			IsSafeOrganic:  false,
		},
	},
	// HEALTHY
	{
		Key: HealthyKey,
		Advice: types.Advice{
			Explanation:    "Your plant shows optimal chlorophyll levels and strong cell structure. No pathogens, necrosis, or pest activity were detected by the neural scan.",
			TreatmentSteps: []string{"Continue regular N-P-K fertilization.", "Monitor for early pest signs once a week.", "Ensure the plant gets 6-8 hours of sunlight."},
			PreventionTips: []string{"Test soil pH every season (Aim for 6.0-7.0).", "Encourage ladybugs and other beneficial insects."},
			IsSafeOrganic:  true,
		},
	},
}

// Keys returns the knowledge-base keys in declaration order.
func Keys() []string {
	keys := make([]string, len(dataset))
	for i, e := range dataset {
		keys[i] = e.Key
	}
	return keys
}

// Lookup returns the advice stored under exactly key.
func Lookup(key string) (types.Advice, bool) {
	for _, e := range dataset {
		if e.Key == key {
			return e.Advice.Clone(), true
		}
	}
	return types.Advice{}, false
}

package seed

import "github.com/mesh-intelligence/formulary/pkg/types"

// starter is the built-in reference set offered by init --starter.
var starter = []types.DocumentCategory{
	{
		Name: "Analgesics",
		Groups: []types.DocumentGroup{
			{Title: "NSAIDs", Items: []string{"Ibuprofen", "Naproxen", "Diclofenac"}},
			{Title: "Non-opioid", Items: []string{"Paracetamol", "Metamizole"}},
			{Title: "Opioids", Items: []string{"Tramadol", "Morphine", "Oxycodone"}},
		},
	},
	{
		Name: "Antibiotics",
		Groups: []types.DocumentGroup{
			{Title: "Penicillins", Items: []string{"Amoxicillin", "Penicillin V", "Flucloxacillin"}},
			{Title: "Cephalosporins", Items: []string{"Cefuroxime", "Ceftriaxone"}},
			{Title: "Macrolides", Items: []string{"Azithromycin", "Clarithromycin"}},
			{Title: "Sulfonamides", Items: []string{"Cotrimoxazole"}},
		},
	},
	{
		Name: "Vaccines",
		Groups: []types.DocumentGroup{
			{Title: "Routine", Items: []string{"Tetanus/Diphtheria/Pertussis", "MMR", "Influenza"}},
			{Title: "Travel", Items: []string{"Hepatitis A", "Typhoid", "Yellow fever"}},
		},
	},
	{
		Name: "Allergens",
		Groups: []types.DocumentGroup{
			{Title: "Drug", Items: []string{"Penicillin", "Sulfonamides", "Contrast media"}},
			{Title: "Environmental", Items: []string{"Latex", "Pollen", "House dust mite"}},
			{Title: "Food", Items: []string{"Peanut", "Shellfish", "Egg"}},
		},
	},
}

// Starter returns a copy of the built-in reference set.
func Starter() types.Document {
	doc := types.Document{Categories: make([]types.DocumentCategory, len(starter))}
	for i, c := range starter {
		dc := types.DocumentCategory{Name: c.Name, Groups: make([]types.DocumentGroup, len(c.Groups))}
		for j, g := range c.Groups {
			dc.Groups[j] = types.DocumentGroup{Title: g.Title, Items: append([]string(nil), g.Items...)}
		}
		doc.Categories[i] = dc
	}
	return doc
}

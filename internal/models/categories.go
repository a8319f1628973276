package models

// Category is a fixed catalog entry. The catalog is static product data, not
// a database table.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var Categories = []Category{
	{ID: "money", Name: "Money", Icon: "cash-outline", Color: "#10B981"},
	{ID: "work", Name: "Work", Icon: "briefcase-outline", Color: "#3B82F6"},
	{ID: "health", Name: "Health", Icon: "heart-outline", Color: "#EF4444"},
	{ID: "home", Name: "Home", Icon: "home-outline", Color: "#F59E0B"},
	{ID: "tech", Name: "Tech", Icon: "hardware-chip-outline", Color: "#8B5CF6"},
	{ID: "school", Name: "School", Icon: "school-outline", Color: "#EC4899"},
	{ID: "relationships", Name: "Relationships", Icon: "people-outline", Color: "#F97316"},
	{ID: "travel", Name: "Travel/Transport", Icon: "car-outline", Color: "#06B6D4"},
	{ID: "services", Name: "Services", Icon: "construct-outline", Color: "#84CC16"},
}

// CategoryByID looks up a catalog entry; ok is false for unknown ids.
func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Mission is a daily posting prompt, rotated by weekday.
type Mission struct {
	Theme      string `json:"theme"`
	Prompt     string `json:"prompt"`
	CategoryID string `json:"categoryId,omitempty"`
}

var Missions = []Mission{
	{Theme: "Money", Prompt: "What's one friction you hate about managing money?", CategoryID: "money"},
	{Theme: "Work", Prompt: "What's annoying about your daily work routine?", CategoryID: "work"},
	{Theme: "Health", Prompt: "What health-related friction do you face regularly?", CategoryID: "health"},
	{Theme: "Tech", Prompt: "What tech problem keeps bugging you?", CategoryID: "tech"},
	{Theme: "Home", Prompt: "What's frustrating about your home or living situation?", CategoryID: "home"},
	{Theme: "Travel", Prompt: "What travel or transport friction do you encounter?", CategoryID: "travel"},
	{Theme: "Relationships", Prompt: "What communication friction do you face with others?", CategoryID: "relationships"},
}

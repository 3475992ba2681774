package task

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryShopping Category = "shopping"
	CategoryHealth   Category = "health"
	CategoryOther    Category = "other"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// CategoryInfo describes how a category is presented in selectors and badges.
type CategoryInfo struct {
	Value    Category
	Label    string
	Icon     string
	ColorKey string
}

// PriorityInfo is a CategoryInfo with an explicit sort rank; lower ranks sort first.
type PriorityInfo struct {
	Value    Priority
	Label    string
	Icon     string
	ColorKey string
	Order    int
}

var categories = [...]CategoryInfo{
	{Value: CategoryWork, Label: "Work", Icon: "💼", ColorKey: "blue"},
	{Value: CategoryPersonal, Label: "Personal", Icon: "👤", ColorKey: "purple"},
	{Value: CategoryShopping, Label: "Shopping", Icon: "🛒", ColorKey: "green"},
	{Value: CategoryHealth, Label: "Health", Icon: "❤️", ColorKey: "red"},
	{Value: CategoryOther, Label: "Other", Icon: "📌", ColorKey: "gray"},
}

var priorities = [...]PriorityInfo{
	{Value: PriorityHigh, Label: "High", Icon: "🔴", ColorKey: "red", Order: 0},
	{Value: PriorityMedium, Label: "Medium", Icon: "🟡", ColorKey: "yellow", Order: 1},
	{Value: PriorityLow, Label: "Low", Icon: "🟢", ColorKey: "green", Order: 2},
}

// Categories returns the category catalog in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories[:])
	return out
}

// Priorities returns the priority catalog in rank order.
func Priorities() []PriorityInfo {
	out := make([]PriorityInfo, len(priorities))
	copy(out, priorities[:])
	return out
}

func LookupCategory(value Category) (CategoryInfo, bool) {
	for _, c := range categories {
		if c.Value == value {
			return c, true
		}
	}
	return CategoryInfo{}, false
}

func LookupPriority(value Priority) (PriorityInfo, bool) {
	for _, p := range priorities {
		if p.Value == value {
			return p, true
		}
	}
	return PriorityInfo{}, false
}

func (c Category) Valid() bool {
	_, ok := LookupCategory(c)
	return ok
}

func (p Priority) Valid() bool {
	_, ok := LookupPriority(p)
	return ok
}

// Rank is the ordering rank of p. Unknown and empty priorities rank as medium.
func (p Priority) Rank() int {
	if info, ok := LookupPriority(p); ok {
		return info.Order
	}
	return priorities[1].Order
}

// Next cycles through categories in catalog order, with "none" after the last one.
func (c Category) Next() Category {
	if c == "" {
		return categories[0].Value
	}
	for i, info := range categories {
		if info.Value == c && i+1 < len(categories) {
			return categories[i+1].Value
		}
	}
	return ""
}

// Next cycles high -> medium -> low -> high.
func (p Priority) Next() Priority {
	for i, info := range priorities {
		if info.Value == p {
			return priorities[(i+1)%len(priorities)].Value
		}
	}
	return PriorityMedium
}

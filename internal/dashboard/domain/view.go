package domain

// View is the unified dashboard payload served to display clients. It is
// always consumed as one unit, so it is cached as one unit.
type View struct {
	Employees []Employee `json:"employees"`
	News      []NewsItem `json:"news"`
	Events    []Event    `json:"events"`
	Weather   *Weather   `json:"weather"`
}

// Employee is one staff entry shown on celebration/overview slides.
type Employee struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Birthday string `json:"birthday,omitempty"` // MM-DD
}

// NewsItem is one headline with optional body text.
type NewsItem struct {
	Title       string `json:"title"`
	Body        string `json:"body,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// Event is one calendar entry.
type Event struct {
	Title    string `json:"title"`
	StartsAt string `json:"startsAt"`
	Location string `json:"location,omitempty"`
}

// Weather is the current conditions summary.
type Weather struct {
	TemperatureC float64 `json:"temperatureC"`
	Condition    string  `json:"condition"`
	Location     string  `json:"location,omitempty"`
}

// EmptyView returns a view with empty (non-nil) collections. Used for the
// cold-start error response so clients always receive a coherent shape.
func EmptyView() View {
	return View{
		Employees: []Employee{},
		News:      []NewsItem{},
		Events:    []Event{},
	}
}

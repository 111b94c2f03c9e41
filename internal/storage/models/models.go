package models

import "time"

// ChatMessage is one entry in a session transcript. The sequence is
// append-only; insertion order is chronological order.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Error     bool      `json:"error,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TrackingStats is the persisted Counter Set. ActiveUsers is derived from
// the online-user map on every observation, never incremented directly.
type TrackingStats struct {
	TotalUsers   int       `json:"totalUsers"`
	ActiveUsers  int       `json:"activeUsers"`
	TotalChats   int       `json:"totalChats"`
	CodeSnippets int       `json:"codeSnippets"`
	UserRating   float64   `json:"userRating"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

type RegisteredUser struct {
	ID           string    `json:"id"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type ChatSessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

type RatingRecord struct {
	UserID    string    `json:"userId"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// DetailedAnalytics is the admin dashboard payload assembled by the tracker.
type DetailedAnalytics struct {
	Overview           TrackingStats       `json:"overview"`
	AvgResponseTime    float64             `json:"avgResponseTime"`
	RecentUsers        []RegisteredUser    `json:"recentUsers"`
	RecentChats        []ChatSessionRecord `json:"recentChats"`
	RatingDistribution map[int]int         `json:"ratingDistribution"`
}

// CategoryStat is one row of the admin category-performance table.
type CategoryStat struct {
	Category        string  `json:"category"`
	TotalQueries    int     `json:"totalQueries"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	Satisfaction    float64 `json:"satisfaction"`
	Trend           string  `json:"trend"`
}

// Settings mirrors the admin settings form.
type Settings struct {
	API      APISettings     `json:"api"`
	Features FeatureSettings `json:"features"`
	Site     SiteSettings    `json:"site"`
}

type APISettings struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float32 `json:"temperature"`
}

type FeatureSettings struct {
	UserRegistration bool `json:"userRegistration"`
	ChatHistory      bool `json:"chatHistory"`
	CodeGeneration   bool `json:"codeGeneration"`
	Maintenance      bool `json:"maintenance"`
}

type SiteSettings struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	MaintenanceMessage string `json:"maintenanceMessage"`
}

// DefaultSettings is returned when nothing has been saved yet.
func DefaultSettings() Settings {
	return Settings{
		API: APISettings{
			Model:       "gpt-4",
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		Features: FeatureSettings{
			UserRegistration: true,
			ChatHistory:      true,
			CodeGeneration:   true,
			Maintenance:      false,
		},
		Site: SiteSettings{
			Name:        "Roblox AI Studio",
			Description: "AI assistant untuk Roblox Studio scripting",
		},
	}
}

package tmdb

// Result represents a single TMDB search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	MediaType    string  `json:"media_type"`
	PosterPath   string  `json:"poster_path"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// SearchResponse models the TMDB paginated search response.
type SearchResponse struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Genre is a TMDB genre label.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CastMember is a credited performer.
type CastMember struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Credits wraps the appended credits block.
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// ReleaseDateEntry is one dated release within a country.
type ReleaseDateEntry struct {
	ReleaseDate string `json:"release_date"`
	Type        int    `json:"type"`
	Note        string `json:"note"`
}

// CountryReleases groups release entries by ISO 3166-1 country.
type CountryReleases struct {
	Country      string             `json:"iso_3166_1"`
	ReleaseDates []ReleaseDateEntry `json:"release_dates"`
}

// ReleaseDates wraps the appended release_dates block.
type ReleaseDates struct {
	Results []CountryReleases `json:"results"`
}

// MovieDetails is the /movie/{id} payload.
type MovieDetails struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Overview     string       `json:"overview"`
	ReleaseDate  string       `json:"release_date"`
	Status       string       `json:"status"`
	PosterPath   string       `json:"poster_path"`
	VoteAverage  float64      `json:"vote_average"`
	Genres       []Genre      `json:"genres"`
	Credits      Credits      `json:"credits"`
	ReleaseDates ReleaseDates `json:"release_dates"`
}

// SeasonSummary is a season entry in a show payload.
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
	Name         string `json:"name"`
}

// EpisodeSummary is the compact episode form used for next/last episode pointers.
type EpisodeSummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// TVDetails is the /tv/{id} payload.
type TVDetails struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Overview         string          `json:"overview"`
	FirstAirDate     string          `json:"first_air_date"`
	LastAirDate      string          `json:"last_air_date"`
	Status           string          `json:"status"`
	InProduction     bool            `json:"in_production"`
	NumberOfSeasons  int             `json:"number_of_seasons"`
	PosterPath       string          `json:"poster_path"`
	VoteAverage      float64         `json:"vote_average"`
	Genres           []Genre         `json:"genres"`
	Seasons          []SeasonSummary `json:"seasons"`
	NextEpisodeToAir *EpisodeSummary `json:"next_episode_to_air"`
	LastEpisodeToAir *EpisodeSummary `json:"last_episode_to_air"`
	Credits          Credits         `json:"credits"`
}

// Episode describes a single TMDB episode entry.
type Episode struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	SeasonNumber  int     `json:"season_number"`
	EpisodeNumber int     `json:"episode_number"`
	Runtime       int     `json:"runtime"`
	AirDate       string  `json:"air_date"`
	StillPath     string  `json:"still_path"`
	VoteAverage   float64 `json:"vote_average"`
}

// SeasonDetails captures the full TMDB season payload (episodes included).
type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	AirDate      string    `json:"air_date"`
	Episodes     []Episode `json:"episodes"`
}

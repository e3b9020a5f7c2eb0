package songcatalog

const (
	BaseURL  = "https://api.spotify.com/v1/"
	TokenURL = "https://accounts.spotify.com/api/token"

	// Paths
	searchPath         = "search"
	playlistTracksPath = "playlists/%s/tracks"

	// Headers
	JsonHeader      = "Accept"
	JsonContentType = "application/json"
	formContentType = "application/x-www-form-urlencoded"

	// maxPageSize is the largest page the catalog serves
	maxPageSize = 50
)

package gamecommon

// Server and API version strings reported by the /version endpoint.
const (
	ServerVersion = "0.1.0"
	ApiVersion    = "v1"
)

package server

// Route path constants. All routes are defined here to ensure
// consistency and prevent typos.
const (
	RouteToken      = "/oauth/token"
	RouteCheckToken = "/oauth/check_token"
)

const contentTypeJSON = "application/json; charset=utf-8"

package version

// Version is the release string reported by the API and the user agent.
const Version = "v0.4.2"

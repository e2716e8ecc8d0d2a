package version

// Set at link time, for example
// -ldflags "-X github.com/TeamNorCal/ledfx/version.GitHash=`git rev-parse HEAD` -X github.com/TeamNorCal/ledfx/version.BuildTime=`date -u +%FT%TZ`"
var (
	GitHash   = "unknown"
	BuildTime = "unknown"
)

package model

const (
	AppServiceName = "event_exporter"
	NamespaceName  = "webitel"
)

var versions = []string{
	"25.10",
	"25.08",
	"25.06",
}

var (
	CurrentVersion = versions[0]
)

package common

var (
	PackageName = "github.com/ruteri/wingedcap-client"
	Version     = "dev"
)

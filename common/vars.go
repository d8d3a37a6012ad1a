package common

// Version is overridden at build time with -ldflags "-X github.com/ruteri/kongcloak/common.Version=..."
var Version = "dev"

// PackageName is used as the namespace of exported metrics.
const PackageName = "kongcloak"

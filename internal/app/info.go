package app

import (
	"runtime/debug"

	"github.com/aussiebroadwan/tokenkit/pkg/tokensdk"
)

const (
	libraryTitle       = "tokenkit"
	libraryDescription = "Profile based JWT issuance, validation and revocation"
	libraryLicense     = "MIT"
)

// Info describes the library build and the registered profiles, sorted by
// name.
func (app *Application) Info() tokensdk.Info {
	info := tokensdk.Info{
		Library: tokensdk.LibraryInfo{
			Title:       libraryTitle,
			Description: libraryDescription,
			Version:     BuildVersion,
			License:     libraryLicense,
		},
		Profiles: make([]tokensdk.ProfileInfo, 0, app.profiles.Len()),
	}

	for _, p := range app.profiles.All() {
		info.Profiles = append(info.Profiles, tokensdk.NewProfileInfo(p))
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Library.GoVersion = bi.GoVersion
		for _, dep := range bi.Deps {
			info.Packages = append(info.Packages, tokensdk.PackageInfo{Path: dep.Path, Version: dep.Version})
		}
	}

	return info
}

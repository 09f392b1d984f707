package main

import (
	"fmt"
	"io"
	"os"

	"interbot/pkg/version"
)

const bannerArt = `
 _       _            _           _
(_)_ __ | |_ ___ _ __| |__   ___ | |_
| | '_ \| __/ _ \ '__| '_ \ / _ \| __|
| | | | | ||  __/ |  | |_) | (_) | |_
|_|_| |_|\__\___|_|  |_.__/ \___/ \__|
`

func printBanner(w io.Writer) {
	fmt.Fprint(w, bannerArt)
	fmt.Fprintf(w, "  version %s  commit %s  build %s  pid %d\n\n",
		version.GetVersion(), version.GetCommit(), version.GetBuild(), os.Getpid())
}

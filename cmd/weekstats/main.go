// Command weekstats computes a Farcaster user's weekly stats from the
// terminal, using the same feed client and reducer as the HTTP service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

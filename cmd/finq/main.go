// Command finq is the operator CLI for resolving companies and pulling SEC filings.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

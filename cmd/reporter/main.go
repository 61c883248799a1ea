// Command reporter submits incident reports from the command line: it
// derives the content key, pins optional evidence, writes the key to the
// ledger with the configured wallet and mirrors the report to the API.
package main

import "os"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

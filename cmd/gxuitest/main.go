// Command gxuitest runs GeneXus UI test scripts.
package main

import "github.com/gxtest/uitest/pkg/cli"

func main() {
	cli.Execute()
}

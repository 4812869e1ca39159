// Command hwgc-soft runs the MAGC-DIMM distributed marking simulator.
package main

import "github.com/zixian-cai/hwgc-soft/cmd/hwgc-soft/cmd"

func main() {
	cmd.Execute()
}

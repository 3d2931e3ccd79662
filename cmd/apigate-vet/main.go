// Command apigate-vet runs the apigate pass through the go/analysis driver:
//
//	go vet -vettool=$(which apigate-vet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/gnoswap-labs/apigate/pkg/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}

// Command pvintel-run is a thin manual-smoke-test harness around the
// library: it wires config, the Store, and the source/price/campaign-
// finance clients into the sync, enrichment, and donation pipelines so a
// developer can exercise them against the real upstreams from a
// terminal. It is not the analytics surface — that's the library's job;
// this just drives it.
package main

func main() {
	Execute()
}

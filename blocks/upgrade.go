package blocks

// CurrentSchemaVersion is the block schema version this build writes.
const CurrentSchemaVersion = 1

// UpgradeFunc rewrites a block stored at one schema version into the next.
type UpgradeFunc func(block map[string]any) map[string]any

// upgradeChain maps a stored version to the step that lifts it by one.
// Only version 1 exists so far, so the chain is empty; a future version 2
// adds its step under key 1.
var upgradeChain = map[int]UpgradeFunc{}

// upgrade runs block through chain, starting from version from, and returns
// the version it ended at. Versions outside 1..CurrentSchemaVersion are
// pinned to the nearest end.
func upgrade(chain map[int]UpgradeFunc, block map[string]any, from int) (map[string]any, int) {
	v := from
	if v < 1 {
		v = 1
	}
	for v < CurrentSchemaVersion {
		step, ok := chain[v]
		if !ok {
			break
		}
		block = step(block)
		v++
	}
	if v > CurrentSchemaVersion {
		v = CurrentSchemaVersion
	}
	return block, v
}

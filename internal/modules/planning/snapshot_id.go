package planning

import (
	"encoding/json"
	"fmt"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/google/uuid"
)

var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/aristath/supplyopt/snapshot"))

// SnapshotID is a name-based (version 5) UUID of the snapshot's JSON
// encoding. Equal snapshots get equal ids.
func SnapshotID(snap domain.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return uuid.NewSHA1(snapshotNamespace, data).String(), nil
}

package memstore_test

import (
	"testing"

	"deaddrop/internal/server/memstore"
	"deaddrop/internal/server/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, memstore.New())
}

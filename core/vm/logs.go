package vm

import "github.com/vmcore/suspendvm/common"

// Log is one LOG0..LOG4 event emitted during execution, recorded in
// emission order and discarded wholesale on revert via the journal's
// logChange entries.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// Package archive serializes collected sources into the bytes carried by
// the payload: a flat name to source table, or a zip container holding
// every file under the source root.
package archive

import (
	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/models"
)

// Flat serializes the table as an ordered JSON object of module name to source
func Flat(table *models.SourceTable) ([]byte, error) {
	if table == nil || table.Len() == 0 {
		return nil, dasherr.New(dasherr.EmptySource, "", "nothing to archive")
	}
	data, err := table.MarshalJSON()
	if err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "failed to serialize source table", err)
	}
	return data, nil
}

// Pack archives a collection according to mode
func Pack(c *models.Collection, mode models.ArchiveMode) ([]byte, error) {
	switch mode {
	case models.Flat:
		return Flat(c.Table)
	case models.Container:
		return Container(c.Members)
	default:
		return nil, dasherr.Newf(dasherr.EncodingError, "", "unknown archive mode %s", mode)
	}
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metric

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// StorageSize is a byte count printed in decimal units.
type StorageSize int64

func (ss StorageSize) String() string {
	switch {
	case ss > 1e9:
		return fmt.Sprintf("%.2f gB", float64(ss)/1e9)
	case ss > 1e6:
		return fmt.Sprintf("%.2f mB", float64(ss)/1e6)
	case ss > 1e3:
		return fmt.Sprintf("%.2f kB", float64(ss)/1e3)
	}
	return fmt.Sprintf("%d B", ss)
}

// DirSize sums the sizes of the regular files under dir.
func DirSize(dir string) (StorageSize, error) {
	var size StorageSize
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += StorageSize(info.Size())
		return nil
	})
	return size, err
}

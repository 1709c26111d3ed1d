// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errSample = New(Stake, "insufficient stake")

func TestIsRevertErr(t *testing.T) {
	assert.True(t, IsRevertErr(errSample))
	assert.True(t, IsRevertErr(pkgerrors.Wrap(errSample, "add stake")))
	assert.False(t, IsRevertErr(errors.New("storage failure")))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr("not an error"))
}

func TestWrap(t *testing.T) {
	err := Wrap(errSample, "pool %d", 7)
	assert.Equal(t, "insufficient stake: pool 7", err.Error())
	assert.ErrorIs(t, err, errSample)
	assert.Equal(t, Stake, ClassOf(err))
	assert.Equal(t, Class(0), ClassOf(errors.New("x")))
	assert.Equal(t, "stake", Stake.String())
}

// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdo

import (
	// activate discipline builders
	_ "github.com/mfkiwl/mphys/dsc"
)

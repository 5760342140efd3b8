// Copyright 2026 The xivtool Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command xivtool inspects and exports data out of a SqPack repository.
package main

func main() {
	execute()
}

/*
 * rvtrace - Per-core cache access path.
 *
 * Copyright 2026, the rvtrace authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package splitcache

// AccessResult reports which levels missed and/or invalidated for one
// fetch or data access.
type AccessResult struct {
	L1Miss    bool
	L1Inval   bool
	L2Present bool
	L2Miss    bool
	L2Inval   bool
}

// Core owns one vCPU's L1-I, L1-D, and (if enabled) its own L2. The
// source keeps L2 per-core rather than shared between cores; §9 keeps
// that as the faithful contract.
type Core struct {
	ID  int
	L1I *Cache
	L1D *Cache
	L2  *Cache // nil if L2 is disabled.
}

// AccessFetch performs an instruction fetch through L1-I, consulting L2
// on a miss if it is enabled. The L1 mutex is released before the L2
// mutex is acquired: each Cache.Access call is a self-contained
// transaction.
func (c *Core) AccessFetch(addr uint64) AccessResult {
	return c.access(c.L1I, addr)
}

// AccessData performs a data access through L1-D, consulting L2 on a
// miss if it is enabled.
func (c *Core) AccessData(addr uint64) AccessResult {
	return c.access(c.L1D, addr)
}

func (c *Core) access(l1 *Cache, addr uint64) AccessResult {
	st := l1.Access(addr)
	res := AccessResult{
		L1Miss:  st&StatusMiss != 0,
		L1Inval: st&StatusInval != 0,
	}
	if res.L1Miss && c.L2 != nil {
		res.L2Present = true
		st2 := c.L2.Access(addr)
		res.L2Miss = st2&StatusMiss != 0
		res.L2Inval = st2&StatusInval != 0
	}
	return res
}

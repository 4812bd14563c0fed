package toyfs

// Itrunc recursively frees every data block reachable from ip's address
// array, in order: the NDIRECT direct blocks, then every entry of the
// single-indirect block plus the single-indirect block itself, then every
// entry of every second-level indirect block under the double-indirect
// plus the double-indirect block itself. It then zeroes Size and Blocks
// and persists the inode.
func (fs *FS) Itrunc(ip *Inode) error {
	for i := 0; i < NDIRECT; i++ {
		if ip.Addrs[i] != 0 {
			if err := fs.bfree(ip.Addrs[i]); err != nil {
				return err
			}
			ip.Addrs[i] = 0
		}
	}

	if ip.Addrs[NDIRECT] != 0 {
		if err := fs.freeIndirectBlock(ip.Addrs[NDIRECT]); err != nil {
			return err
		}
		ip.Addrs[NDIRECT] = 0
	}

	if ip.Addrs[NDIRECT+1] != 0 {
		buf, err := fs.bread(ip.Addrs[NDIRECT+1])
		if err != nil {
			return err
		}
		for i := uint32(0); i < APB; i++ {
			if saddr := readAddr(buf, i); saddr != 0 {
				if err := fs.freeIndirectBlock(saddr); err != nil {
					return err
				}
			}
		}
		if err := fs.bfree(ip.Addrs[NDIRECT+1]); err != nil {
			return err
		}
		ip.Addrs[NDIRECT+1] = 0
	}

	ip.Size = 0
	ip.Blocks = 0
	return fs.Iupdate(ip)
}

// freeIndirectBlock frees every data block an indirect block points to,
// then frees the indirect block itself.
func (fs *FS) freeIndirectBlock(addr uint32) error {
	buf, err := fs.bread(addr)
	if err != nil {
		return err
	}
	for i := uint32(0); i < APB; i++ {
		if daddr := readAddr(buf, i); daddr != 0 {
			if err := fs.bfree(daddr); err != nil {
				return err
			}
		}
	}
	return fs.bfree(addr)
}

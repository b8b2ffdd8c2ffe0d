package config

// ResolveBitrate returns the target bitrate for a sound: its own source entry,
// then the package default, then the global default. Packages listed in
// extends are consulted after the package itself, later entries first.
func (c *Config) ResolveBitrate(pkg, name string) uint32 {
	if src, ok := c.lookupSource(pkg, name, map[string]bool{}); ok && src.Bitrate > 0 {
		return src.Bitrate
	}
	if rate := c.packageBitrate(pkg, map[string]bool{}); rate > 0 {
		return rate
	}
	return c.Bitrate
}

// ResolveChannels returns the configured channel target for a sound, or the
// probed input channel count when no override exists.
func (c *Config) ResolveChannels(pkg, name string, probed uint16) uint16 {
	if src, ok := c.lookupSource(pkg, name, map[string]bool{}); ok && src.Channels > 0 {
		return src.Channels
	}
	return probed
}

// EffectiveSources flattens the source overrides visible to pkg through its
// extends chain.
func (c *Config) EffectiveSources(pkg string) map[string]Source {
	out := map[string]Source{}
	c.collectSources(pkg, out, map[string]bool{})
	return out
}

func (c *Config) collectSources(pkg string, out map[string]Source, seen map[string]bool) {
	if seen[pkg] {
		return
	}
	seen[pkg] = true
	p := c.Packages[pkg]
	for _, parent := range p.Extends {
		c.collectSources(parent, out, seen)
	}
	for name, src := range p.Sources {
		merged := out[name]
		if src.Bitrate > 0 {
			merged.Bitrate = src.Bitrate
		}
		if src.Channels > 0 {
			merged.Channels = src.Channels
		}
		out[name] = merged
	}
}

func (c *Config) lookupSource(pkg, name string, seen map[string]bool) (Source, bool) {
	merged, found := Source{}, false
	c.walkSource(pkg, name, seen, func(src Source) {
		found = true
		if merged.Bitrate == 0 {
			merged.Bitrate = src.Bitrate
		}
		if merged.Channels == 0 {
			merged.Channels = src.Channels
		}
	})
	return merged, found
}

// walkSource visits matching source entries from most to least specific.
func (c *Config) walkSource(pkg, name string, seen map[string]bool, fn func(Source)) {
	if seen[pkg] {
		return
	}
	seen[pkg] = true
	p, ok := c.Packages[pkg]
	if !ok {
		return
	}
	if src, ok := p.Sources[name]; ok {
		fn(src)
	}
	for i := len(p.Extends) - 1; i >= 0; i-- {
		c.walkSource(p.Extends[i], name, seen, fn)
	}
}

func (c *Config) packageBitrate(pkg string, seen map[string]bool) uint32 {
	if seen[pkg] {
		return 0
	}
	seen[pkg] = true
	p, ok := c.Packages[pkg]
	if !ok {
		return 0
	}
	if p.Bitrate > 0 {
		return p.Bitrate
	}
	for i := len(p.Extends) - 1; i >= 0; i-- {
		if rate := c.packageBitrate(p.Extends[i], seen); rate > 0 {
			return rate
		}
	}
	return 0
}

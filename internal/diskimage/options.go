package diskimage

// AttachOptions configures Client.Attach.
type AttachOptions struct {
	// MountPoint is created when missing. Empty means diskutil picks /Volumes/<name>.
	MountPoint string
	ReadOnly   bool
	NoBrowse   bool
	Verbose    bool
	DryRun     bool
}

// NewAttachOptions returns attach options with every flag cleared.
func NewAttachOptions() AttachOptions {
	return AttachOptions{}
}

func (o AttachOptions) WithMountPoint(mountPoint string) AttachOptions {
	o.MountPoint = mountPoint
	return o
}

func (o AttachOptions) WithReadOnly() AttachOptions {
	o.ReadOnly = true
	return o
}

func (o AttachOptions) WithNoBrowse() AttachOptions {
	o.NoBrowse = true
	return o
}

func (o AttachOptions) WithVerbose(verbose bool) AttachOptions {
	o.Verbose = verbose
	return o
}

func (o AttachOptions) WithDryRun(dryRun bool) AttachOptions {
	o.DryRun = dryRun
	return o
}

// CreateBlankOptions configures Client.CreateBlank. Size is validated at call time.
type CreateBlankOptions struct {
	Size    string
	FS      FileSystem
	Format  Format
	DryRun  bool
	Verbose bool
}

// NewCreateBlankOptions returns options for a blank image of the given size.
func NewCreateBlankOptions(size string, fs FileSystem, format Format) CreateBlankOptions {
	return CreateBlankOptions{Size: size, FS: fs, Format: format}
}

// DefaultCreateBlankOptions returns a 1GB ASIF image without a filesystem.
func DefaultCreateBlankOptions() CreateBlankOptions {
	return NewCreateBlankOptions("1GB", FileSystemNone, DefaultFormat)
}

func (o CreateBlankOptions) WithDryRun(dryRun bool) CreateBlankOptions {
	o.DryRun = dryRun
	return o
}

func (o CreateBlankOptions) WithVerbose(verbose bool) CreateBlankOptions {
	o.Verbose = verbose
	return o
}

// CreateFromOptions configures Client.CreateFrom.
type CreateFromOptions struct {
	Format  Format
	DryRun  bool
	Verbose bool
}

func NewCreateFromOptions(format Format) CreateFromOptions {
	return CreateFromOptions{Format: format}
}

// DefaultCreateFromOptions converts to ASIF.
func DefaultCreateFromOptions() CreateFromOptions {
	return NewCreateFromOptions(DefaultFormat)
}

func (o CreateFromOptions) WithDryRun(dryRun bool) CreateFromOptions {
	o.DryRun = dryRun
	return o
}

func (o CreateFromOptions) WithVerbose(verbose bool) CreateFromOptions {
	o.Verbose = verbose
	return o
}

// ResizeOptions configures Client.Resize. Size is validated at call time.
type ResizeOptions struct {
	Size    string
	DryRun  bool
	Verbose bool
}

func NewResizeOptions(size string) ResizeOptions {
	return ResizeOptions{Size: size}
}

func (o ResizeOptions) WithDryRun(dryRun bool) ResizeOptions {
	o.DryRun = dryRun
	return o
}

func (o ResizeOptions) WithVerbose(verbose bool) ResizeOptions {
	o.Verbose = verbose
	return o
}

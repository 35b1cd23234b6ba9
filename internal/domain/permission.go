package domain

type Permission string

const (
	PermissionView    Permission = "view"
	PermissionEdit    Permission = "edit"
	PermissionDelete  Permission = "delete"
	PermissionShare   Permission = "share"
	PermissionRestore Permission = "restore"
)

// PermissionSet is the capability set computed for a (user, file) pair.
type PermissionSet map[Permission]bool

func (ps PermissionSet) Has(p Permission) bool {
	return ps[p]
}

// FullPermissions is what owners and sharees get. The sharing model is
// deliberately symmetric: any sharee may view, edit, delete to bin, restore
// and re-share; only the owner's quota moves on purge.
func FullPermissions() PermissionSet {
	return PermissionSet{
		PermissionView:    true,
		PermissionEdit:    true,
		PermissionDelete:  true,
		PermissionShare:   true,
		PermissionRestore: true,
	}
}

package sim

// AdminStatusWriter is implemented by writers that show whether the admin
// server is listening.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

package bdapp

// Region represents a target AWS region for client creation.
type Region interface {
	resolve(env Environment) string
}

type localRegion struct{}

func (localRegion) resolve(env Environment) string { return env.awsRegion() }

// LocalRegion returns a Region that uses AWS_REGION.
func LocalRegion() Region { return localRegion{} }

type primaryRegion struct{}

func (primaryRegion) resolve(env Environment) string { return env.primaryRegion() }

// PrimaryRegion returns a Region that uses BD_PRIMARY_REGION, falling back to AWS_REGION.
func PrimaryRegion() Region { return primaryRegion{} }

type fixedRegion string

func (r fixedRegion) resolve(Environment) string { return string(r) }

// FixedRegion returns a Region that uses a specific region string.
func FixedRegion(region string) Region { return fixedRegion(region) }

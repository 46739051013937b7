// Package actuator reads configuration data from the management endpoints of
// a Spring Boot application: configuration-properties beans from configprops
// and property sources from env.
package actuator

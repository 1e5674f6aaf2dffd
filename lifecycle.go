package quill

// Close disposes every singleton the container built, newest first.
// Instances supplied from outside are left alone. Bindings stay registered.
func (c *Container) Close() error {
	if err := c.internal.Close(); err != nil {
		c.logger.Warn("container closed with errors", "error", err)
		return err
	}
	c.logger.Debug("container closed")
	return nil
}

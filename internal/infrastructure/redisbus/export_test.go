package redisbus

// Decode expone decode a los tests del paquete.
var Decode = decode

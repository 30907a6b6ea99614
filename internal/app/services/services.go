package services

// Services defined in this package:
// - FeeService: yearly fee records of a subject
// - DepartmentService: department lookup and seeding
